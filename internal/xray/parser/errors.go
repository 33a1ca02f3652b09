package parser

import "errors"

var (
	// ErrMalformedURI covers every structural split or parse failure while decoding.
	ErrMalformedURI = errors.New("malformed uri")
	// ErrUnsupportedProtocol is returned when the scheme is neither vmess nor vless.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)
