package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 是注册与改密共用的最小口令长度。
const MinPasswordLength = 8

// bcrypt 代价固定为库默认值；提高代价属于运维决定，这里不做配置项。
const hashCost = bcrypt.DefaultCost

// HashPassword 生成口令的 bcrypt 哈希。过短的口令在这里就拒绝，
// 不让 handler 各自把关。
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", errors.New("password is too short")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPasswordHash 报告口令与哈希是否匹配。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
