//
// Date: 2025-12-20
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Typed errors shared by every package so callers can branch on kind.
//

package spoterr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindTransport
	KindAPI
	KindProtocol
	KindContent
	KindPremiumRequired
	KindDecode
)

const (
	// Domain is used for auth, API and decode errors.
	Domain = "com.spotifyauth.error"

	// DownloadDomain is used for preview download errors.
	DownloadDomain = "com.spotifyauth.download.error"

	// DefaultCode is used when no vendor status code is known.
	DefaultCode = 4776

	// PremiumRequiredMessage is reported when a track has no preview clip.
	PremiumRequiredMessage = "This song requires Spotify Premium"
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindConfiguration:   "configuration",
	KindTransport:       "transport",
	KindAPI:             "api",
	KindProtocol:        "protocol",
	KindContent:         "content",
	KindPremiumRequired: "premium_required",
	KindDecode:          "decode",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by this module.
type Error struct {
	Kind        Kind
	Domain      string
	Code        int
	Message     string
	Description string
	Err         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Description != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Description)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s (%s %d)", msg, e.Domain, e.Code)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind in the default domain.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Domain: Domain, Code: DefaultCode, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	e := New(kind, message)
	e.Err = err
	return e
}

// Configuration reports a missing client id, secret or redirect URI.
func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// Transport reports a failed HTTP call.
func Transport(message string, err error) *Error {
	return Wrap(KindTransport, message, err)
}

// API reports a well formed error body returned by the vendor.
func API(code int, message, description string) *Error {
	if code == 0 {
		code = DefaultCode
	}
	return &Error{Kind: KindAPI, Domain: Domain, Code: code, Message: message, Description: description}
}

// Protocol reports a redirect that lacks the expected parameters.
func Protocol(message string) *Error {
	return New(KindProtocol, message)
}

// Content reports a downloaded body that is absent or too small.
func Content(message string, err error) *Error {
	e := Wrap(KindContent, message, err)
	e.Domain = DownloadDomain
	return e
}

// PremiumRequired reports a track with no preview clip.
func PremiumRequired() *Error {
	e := New(KindPremiumRequired, PremiumRequiredMessage)
	e.Domain = DownloadDomain
	return e
}

// Decode reports a payload missing a required field or of the wrong shape.
func Decode(message string, err error) *Error {
	return Wrap(KindDecode, message, err)
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
