package model

// TokenPair はログイン・サインアップ・リフレッシュ時に発行する認証情報の組。
// AccessTokenは署名付きJWT（サーバー側に保存しない）、
// RefreshTokenは不透明な値でusers_refresh_tokensに1ユーザー1行で保存する。
type TokenPair struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
