//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Login states and the status colour shown to the user.
//

package login

import (
	"fmt"

	"github.com/fatih/color"
)

// State is where the controller is in the login flow.
type State int

const (
	StateIdle State = iota
	StateShowing
	StateExchanging
	StateSucceeded
	StateFailed
	StateClosed
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShowing:
		return "showing"
	case StateExchanging:
		return "exchanging"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a colour hint for whatever renders the login surface.
type Status int

const (
	StatusDefault Status = iota
	StatusPending
	StatusSuccess
	StatusWarning
	StatusError
)

var statusHex = map[Status]string{
	StatusDefault: "#FFFFFF",
	StatusPending: "#2D46B9",
	StatusSuccess: "#1DB954",
	StatusWarning: "#F59B23",
	StatusError:   "#E22134",
}

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case StatusDefault:
		return "default"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Hex returns the status colour as #RRGGBB.
func (s Status) Hex() string {
	if h, ok := statusHex[s]; ok {
		return h
	}
	return statusHex[StatusDefault]
}

// Color returns a terminal printer for the status.
func (s Status) Color() *color.Color {
	switch s {
	case StatusPending:
		return color.New(color.FgCyan)
	case StatusSuccess:
		return color.New(color.FgGreen, color.Bold)
	case StatusWarning:
		return color.New(color.FgYellow)
	case StatusError:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.Reset)
	}
}
