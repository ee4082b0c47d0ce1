//
// Date: 2025-12-09
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Type definitions for the command line application.
//

package main

import (
	"context"

	"github.com/cloudmanic/spotify-auth-kit/spotify"
)

// clientFunc returns a Web API client. This allows for mocking in tests.
type clientFunc func(ctx context.Context) (spotify.Client, error)

// APIResponse represents a standard JSON response for the API.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
