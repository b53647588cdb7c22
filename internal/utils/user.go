package utils

import (
	"math/rand/v2"
	"regexp"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{3,30}$`)

// ValidUsername 用户名 3-30 位，仅允许字母、数字和 _ . -
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// GetRandomEmoji 返回一个随机 emoji 用于默认头像
func GetRandomEmoji() string {
	emojis := []string{"🌱", "🌿", "🍃", "🌾", "🎋", "🎍", "🌲", "🌳", "🐼", "🦊", "🐨", "🐸"}
	return emojis[rand.IntN(len(emojis))]
}
