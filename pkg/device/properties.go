package device

// toInt normalizes the numeric types a cache value may hold (float64 as
// decoded from a JSON number, or int/int64 from a caller-constructed
// cache) into an int. Any other type reports false.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func boolFromInt(v interface{}) bool {
	n, ok := toInt(v)
	return ok && n != 0
}

func intFromBool(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Session) getInt(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toInt(s.cache[key])
}

func (s *Session) getBool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return boolFromInt(s.cache[key])
}

func (s *Session) setInt(key string, v int) {
	s.mu.Lock()
	s.cache[key] = v
	s.dirty[key] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) setBool(key string, v bool) {
	s.setInt(key, intFromBool(v))
}

// Power reports the device's on/off state ("Pow").
func (s *Session) Power() bool { return s.getBool("Pow") }

// SetPower turns the device on or off.
func (s *Session) SetPower(on bool) { s.setBool("Pow", on) }

// Mode reports the operating mode ("Mod").
func (s *Session) Mode() Mode {
	n, _ := s.getInt("Mod")
	return Mode(n)
}

// SetMode sets the operating mode.
func (s *Session) SetMode(m Mode) { s.setInt("Mod", int(m)) }

// FanSpeed reports the fan speed, 0 (auto) to 5 ("WdSpd").
func (s *Session) FanSpeed() int {
	n, _ := s.getInt("WdSpd")
	return n
}

// SetFanSpeed sets the fan speed. Valid range is 0-5 (spec section 4.5).
func (s *Session) SetFanSpeed(speed int) error {
	if speed < 0 || speed > 5 {
		return ErrValueOutOfRange
	}
	s.setInt("WdSpd", speed)
	return nil
}

// FreshAir reports the fresh-air valve state ("Air").
func (s *Session) FreshAir() bool { return s.getBool("Air") }

// SetFreshAir opens or closes the fresh-air valve.
func (s *Session) SetFreshAir(on bool) { s.setBool("Air", on) }

// XFan reports whether the post-cooling fan-dry cycle is enabled ("Blo").
func (s *Session) XFan() bool { return s.getBool("Blo") }

// SetXFan enables or disables the post-cooling fan-dry cycle.
func (s *Session) SetXFan(on bool) { s.setBool("Blo", on) }

// Anion reports the ioniser state ("Health").
func (s *Session) Anion() bool { return s.getBool("Health") }

// SetAnion enables or disables the ioniser.
func (s *Session) SetAnion(on bool) { s.setBool("Health", on) }

// Light reports the display/panel light state ("Lig").
func (s *Session) Light() bool { return s.getBool("Lig") }

// SetLight turns the display/panel light on or off.
func (s *Session) SetLight(on bool) { s.setBool("Lig", on) }

// Turbo reports the turbo-mode state ("Tur").
func (s *Session) Turbo() bool { return s.getBool("Tur") }

// SetTurbo enables or disables turbo mode.
func (s *Session) SetTurbo(on bool) { s.setBool("Tur", on) }

// SteadyHeat reports the 8C steady-heat state ("StHt").
func (s *Session) SteadyHeat() bool { return s.getBool("StHt") }

// SetSteadyHeat enables or disables 8C steady heat.
func (s *Session) SetSteadyHeat(on bool) { s.setBool("StHt", on) }

// PowerSave reports the power-save state ("SvSt").
func (s *Session) PowerSave() bool { return s.getBool("SvSt") }

// SetPowerSave enables or disables power-save mode.
func (s *Session) SetPowerSave(on bool) { s.setBool("SvSt", on) }

// HeatCoolType reports the device's heat/cool capability class
// ("HeatCoolType"). This is a device-reported capability, not a setting.
func (s *Session) HeatCoolType() int {
	n, _ := s.getInt("HeatCoolType")
	return n
}

// HorizontalSwing reports the louver's horizontal position ("SwingLfRig").
func (s *Session) HorizontalSwing() HorizontalSwing {
	n, _ := s.getInt("SwingLfRig")
	return HorizontalSwing(n)
}

// SetHorizontalSwing sets the louver's horizontal position.
func (s *Session) SetHorizontalSwing(v HorizontalSwing) error {
	if v < HSwingDefault || v > HSwingFixedRight {
		return ErrValueOutOfRange
	}
	s.setInt("SwingLfRig", int(v))
	return nil
}

// VerticalSwing reports the louver's vertical position ("SwUpDn").
func (s *Session) VerticalSwing() VerticalSwing {
	n, _ := s.getInt("SwUpDn")
	return VerticalSwing(n)
}

// SetVerticalSwing sets the louver's vertical position.
func (s *Session) SetVerticalSwing(v VerticalSwing) error {
	if v < VSwingDefault || v > VSwingSwingTop {
		return ErrValueOutOfRange
	}
	s.setInt("SwUpDn", int(v))
	return nil
}

// Quiet reports the quiet-mode state ("Quiet"). The wire value is 2 when
// enabled and 0 when disabled (spec section 4.5); any nonzero value
// reads as enabled.
func (s *Session) Quiet() bool {
	n, _ := s.getInt("Quiet")
	return n != 0
}

// SetQuiet enables or disables quiet mode, writing the device's expected
// 2/0 encoding rather than a plain boolean.
func (s *Session) SetQuiet(on bool) {
	if on {
		s.setInt("Quiet", 2)
		return
	}
	s.setInt("Quiet", 0)
}

// Sleep reports the sleep-mode state. The device tracks this as two
// cache keys ("SwhSlp" and "SlpMod") that SetSleep always writes
// together (spec section 4.5); Sleep reads "SwhSlp".
func (s *Session) Sleep() bool { return s.getBool("SwhSlp") }

// SetSleep enables or disables sleep mode, setting both backing keys.
func (s *Session) SetSleep(on bool) {
	s.mu.Lock()
	v := intFromBool(on)
	s.cache["SwhSlp"] = v
	s.cache["SlpMod"] = v
	s.dirty["SwhSlp"] = struct{}{}
	s.dirty["SlpMod"] = struct{}{}
	s.mu.Unlock()
}

// TargetHumidity reports the target relative humidity as a percentage in
// [30, 80], derived from the wire value "Dwet" via percent = 15 + Dwet*5
// (spec section 4.5, supplemented from original_source).
func (s *Session) TargetHumidity() int {
	n, _ := s.getInt("Dwet")
	return 15 + n*5
}

// SetTargetHumidity sets the target relative humidity. Valid range is
// 30-80; values are rounded down to the nearest 5% step the device
// protocol can represent.
func (s *Session) SetTargetHumidity(percent int) error {
	if percent < 30 || percent > 80 {
		return ErrValueOutOfRange
	}
	s.setInt("Dwet", (percent-15)/5)
	return nil
}

// TemperatureUnits reports whether the device is reporting in Celsius or
// Fahrenheit ("TemUn").
func (s *Session) TemperatureUnits() Unit {
	n, _ := s.getInt("TemUn")
	return Unit(n)
}

// SetTemperatureUnits switches the device's reporting unit.
func (s *Session) SetTemperatureUnits(u Unit) { s.setInt("TemUn", int(u)) }

// TargetTemperature reports the setpoint, converted to the unit
// currently selected by TemperatureUnits ("SetTem"/"TemRec").
func (s *Session) TargetTemperature() int {
	s.mu.Lock()
	temSet, _ := toInt(s.cache["SetTem"])
	temRec, _ := toInt(s.cache["TemRec"])
	unit := Unit(0)
	if n, ok := toInt(s.cache["TemUn"]); ok {
		unit = Unit(n)
	}
	s.mu.Unlock()

	if unit == UnitFahrenheit {
		return CelsiusToFahrenheit(temSet, temRec)
	}
	return temSet
}

// SetTargetTemperature sets the setpoint, given in the unit currently
// selected by TemperatureUnits. Setting a target in either unit also
// marks "TemRec" and "TemUn" dirty so PushStateUpdate sends the device's
// required three-field setpoint update (spec section 4.5).
func (s *Session) SetTargetTemperature(value int) error {
	s.mu.Lock()
	unit := Unit(0)
	if n, ok := toInt(s.cache["TemUn"]); ok {
		unit = Unit(n)
	}
	s.mu.Unlock()

	var temSet, temRec int
	if unit == UnitFahrenheit {
		temSet, temRec = FahrenheitToCelsius(value)
	} else {
		temSet, temRec = value, 0
	}
	if temSet < minSetpointCelsius || temSet > maxSetpointCelsius {
		return ErrValueOutOfRange
	}

	s.mu.Lock()
	s.cache["SetTem"] = temSet
	s.cache["TemRec"] = temRec
	s.dirty["SetTem"] = struct{}{}
	s.dirty["TemRec"] = struct{}{}
	s.dirty["TemUn"] = struct{}{}
	s.mu.Unlock()
	return nil
}

// CurrentTemperature reports the sensed ambient temperature, converted
// to the unit currently selected by TemperatureUnits ("TemSen").
//
// Firmware v4 reports TemSen as Celsius directly. Firmware v3 reports it
// offset by +40, and a raw value of 0 means "no sensor present", in
// which case the configured setpoint is reported instead (spec section
// 4.5, grounded on original_source's handling of the TemSen offset).
func (s *Session) CurrentTemperature() int {
	s.mu.Lock()
	raw, haveRaw := toInt(s.cache["TemSen"])
	temSet, _ := toInt(s.cache["SetTem"])
	v4 := s.firmwareV4
	unit := Unit(0)
	if n, ok := toInt(s.cache["TemUn"]); ok {
		unit = Unit(n)
	}
	s.mu.Unlock()

	var celsius int
	switch {
	case !haveRaw:
		celsius = temSet
	case v4:
		celsius = raw
	case raw == 0:
		celsius = temSet
	default:
		celsius = raw - temperatureOffset
	}
	celsius = clampToTableCelsius(celsius)

	if unit == UnitFahrenheit {
		return CelsiusToFahrenheit(celsius, 0)
	}
	return celsius
}

// DehumidifierMode reports the dehumidifier's operating mode ("Dmod"),
// a read-only device-reported value (supplemented from original_source).
func (s *Session) DehumidifierMode() int {
	n, _ := s.getInt("Dmod")
	return n
}

// SensedHumidity reports the sensed relative humidity percentage
// ("DwatSen"), read-only.
func (s *Session) SensedHumidity() int {
	n, _ := s.getInt("DwatSen")
	return n
}

// FilterClean reports whether the filter-clean indicator is active
// ("Dfltr"), read-only.
func (s *Session) FilterClean() bool { return s.getBool("Dfltr") }

// WaterTankFull reports whether the water tank is full ("DwatFul"),
// read-only.
func (s *Session) WaterTankFull() bool { return s.getBool("DwatFul") }
