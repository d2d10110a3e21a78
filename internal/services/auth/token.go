// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionToken returns a fresh opaque session token, 32 lowercase hex
// characters.
func NewSessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// DisplayToken builds the bearer-style token echoed back to clients next to
// the session token. It only encodes public identity data and is not a
// security boundary; the session token is.
func DisplayToken(userID int64, username string, issuedAt time.Time) string {
	raw := fmt.Sprintf("%d:%s:%d", userID, username, issuedAt.Unix())
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

var otpRange = big.NewInt(900000)

// NewOTPCode returns a 6-digit one-time code in [100000, 999999]. The codes
// gate account creation and password reset, so they come from crypto/rand.
func NewOTPCode() string {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		// crypto/rand reads the OS entropy source; if that fails the
		// process cannot issue codes at all.
		panic(err)
	}
	return fmt.Sprintf("%d", 100000+n.Int64())
}
