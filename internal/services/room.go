package services

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// RoomIDPrefix starts every server-minted room id.
	RoomIDPrefix = "room-"

	roomIDLength = 7
	base36       = "0123456789abcdefghijklmnopqrstuvwxyz"

	// largest multiple of 36 that fits in a byte
	maxUnbiasedByte = 252

	// MaxUsernameLength is measured in characters, not bytes.
	MaxUsernameLength = 48

	// DefaultUsername is used when a client joins without a name.
	DefaultUsername = "Anonymous"
)

// NewRoomID mints a shareable room identifier such as "room-K3Z9Q0A".
func NewRoomID() (string, error) {
	id := make([]byte, 0, roomIDLength)
	buf := make([]byte, 2*roomIDLength)
	for len(id) < roomIDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate room ID: %w", err)
		}
		id = appendBase36(id, buf, roomIDLength)
	}
	return RoomIDPrefix + strings.ToUpper(string(id)), nil
}

// appendBase36 maps random bytes onto base36 until dst holds n characters.
// Bytes at or above maxUnbiasedByte are skipped so every digit is equally likely.
func appendBase36(dst, random []byte, n int) []byte {
	for _, b := range random {
		if len(dst) == n {
			break
		}
		if b >= maxUnbiasedByte {
			continue
		}
		dst = append(dst, base36[int(b)%len(base36)])
	}
	return dst
}

// SanitizeUsername trims the name, falls back to DefaultUsername when blank
// and truncates it to MaxUsernameLength characters.
func SanitizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultUsername
	}
	if utf8.RuneCountInString(name) <= MaxUsernameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:MaxUsernameLength]))
}
