package envelope

// ZipColsValues pairs a status response's "cols" with "dat" (or a command
// response's "opt" with "val"/"p") into a key->value map. Both arrays must
// be the same length.
func ZipColsValues(cols []interface{}, values []interface{}) (map[string]interface{}, error) {
	if len(cols) != len(values) {
		return nil, ErrColsDatMismatch
	}
	out := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		key, ok := c.(string)
		if !ok {
			continue
		}
		out[key] = values[i]
	}
	return out, nil
}

// SliceField pulls a []interface{}-typed field (e.g. "cols", "dat", "opt",
// "val", "p") out of a decoded inner packet map, returning nil if the key
// is absent or not an array.
func SliceField(inner map[string]interface{}, key string) []interface{} {
	v, ok := inner[key]
	if !ok {
		return nil
	}
	s, ok := v.([]interface{})
	if !ok {
		return nil
	}
	return s
}
