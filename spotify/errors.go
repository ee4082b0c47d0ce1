//
// Date: 2025-12-16
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Vendor error body parsing.
//

package spotify

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

// vendorError decodes either error shape the vendor returns:
// {"error":"code","error_description":"..."} from the accounts service and
// {"error":{"status":401,"message":"..."}} from the Web API.
func vendorError(status int, body []byte) error {
	r := gjson.ParseBytes(body)
	e := r.Get("error")

	switch {
	case e.Type == gjson.String:
		return spoterr.API(status, e.Str, r.Get("error_description").String())
	case e.IsObject():
		code := status
		if s := e.Get("status"); s.Type == gjson.Number {
			code = int(s.Int())
		}
		msg := e.Get("message").String()
		if msg == "" {
			msg = http.StatusText(code)
		}
		return spoterr.API(code, msg, e.Get("reason").String())
	}

	desc := strings.TrimSpace(string(body))
	if len(desc) > 200 {
		desc = desc[:200]
	}
	return spoterr.API(status, fmt.Sprintf("unexpected status %d", status), desc)
}
