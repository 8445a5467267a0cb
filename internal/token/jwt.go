// Package token はアクセストークン（署名付きJWT）と
// リフレッシュトークン（サーバー保存の不透明値）の発行・更新・失効を提供する。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はアクセストークンの検証失敗を表す。
// 形式不正・署名不一致・期限切れは呼び出し側で区別しない。
var ErrInvalidToken = errors.New("invalid access token")

// Claims はアクセストークンに埋め込む利用者クレーム。
// 標準クレームに加えてユーザーIDのみを持つ自己完結型で、
// 検証時にサーバー側の参照を必要としない。
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// GenerateAccessToken はuserIDを埋め込んだHS256署名付きJWTを生成する。
func GenerateAccessToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	signed, err := t.SignedString(secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// ParseAccessToken はJWTの署名と有効期限を検証し、埋め込まれたユーザーIDを返す。
// いかなる検証失敗もErrInvalidTokenとして返し、失敗理由を区別しない。
func ParseAccessToken(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", ErrInvalidToken
	}

	if !t.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
