package discovery

import "errors"

// Discovery errors.
var (
	// ErrNoInterfaces is returned by Scan when no eligible broadcast-capable
	// interface was found (loopback excluded unless WithAllowLoopback).
	ErrNoInterfaces = errors.New("discovery: no eligible broadcast interfaces")
)
