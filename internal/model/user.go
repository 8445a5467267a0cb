// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザー（メンターまたは学生）を表す。
type User struct {
	ID             string
	Name           string
	Email          string
	Password       string // bcryptハッシュ。平文は保持しない。
	FieldID        string
	OrganizationID string
	IsMentor       bool
	IsAvailable    bool
	AvailableFrom  time.Time
	RegisteredOn   time.Time
}

// ApprovedUser は事前承認リスト（approved_users）の1行を表す。
// 外部の管理プロセスが投入する読み取り専用データで、
// サインアップ時に新規アカウントの初期属性として使用する。
type ApprovedUser struct {
	Email          string
	Name           string
	FieldID        string
	OrganizationID string
	IsMentor       bool
	Goal           string // 学生に初期設定する目標テキスト
}

// LessonsAvailability はメンターのレッスン受け入れポリシーを表す。
type LessonsAvailability struct {
	MinInterval     int
	MinIntervalUnit string
	MaxStudents     int
}

// NotificationsSettings はユーザーの通知設定を表す。
type NotificationsSettings struct {
	Enabled bool
	Time    string
}

// DefaultProfile はuser_default_profileシングルトン行を表す。
// サインアップ時に新規アカウントへコピーされる初期値の集合。
type DefaultProfile struct {
	LessonsAvailability   LessonsAvailability
	NotificationsSettings NotificationsSettings
	IsAvailable           bool
}

// Goal は学生の学習目標を表す。
type Goal struct {
	ID       string
	UserID   string
	Text     string
	Index    int
	DateTime time.Time
}
