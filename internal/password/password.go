// Package password はパスワードの一方向ハッシュ化と照合を提供する。
package password

import "golang.org/x/crypto/bcrypt"

// Hash はbcryptでパスワードをハッシュ化する。
// ソルトはbcryptが内部で生成し、ハッシュ文字列に埋め込まれる。
func Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare はハッシュと平文パスワードを照合する。
// bcryptの比較は内部で一定時間比較を行うため、タイミング攻撃に耐性がある。
func Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
