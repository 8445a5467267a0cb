package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/password"
)

// --- モック定義 ---

// fakeTxRunner はdatabase.TxRunnerのテスト用実装。
// fnがエラーを返した場合はロールバック、nilの場合はコミットとして数える。
type fakeTxRunner struct {
	commits   int
	rollbacks int
	commitErr error // コミット時に注入するエラー（一意制約違反の再現用）
}

func (f *fakeTxRunner) RunTx(ctx context.Context, fn func(q database.Querier) error) error {
	if err := fn(nil); err != nil {
		f.rollbacks++
		return err
	}
	if f.commitErr != nil {
		f.rollbacks++
		return f.commitErr
	}
	f.commits++
	return nil
}

type mockUserRepo struct {
	findByIDFn        func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn     func(ctx context.Context, q database.Querier, email string) (*model.User, error)
	emailExistsFn     func(ctx context.Context, q database.Querier, email string) (bool, error)
	createFn          func(ctx context.Context, q database.Querier, user *model.User) error
	setAvailabilityFn func(ctx context.Context, q database.Querier, userID string, available bool) error
	deleteByIDFn      func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, q database.Querier, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, q, email)
	}
	return nil, nil
}

func (m *mockUserRepo) EmailExists(ctx context.Context, q database.Querier, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, q, email)
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, q database.Querier, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, q, user)
	}
	return nil
}

func (m *mockUserRepo) SetAvailability(ctx context.Context, q database.Querier, userID string, available bool) error {
	if m.setAvailabilityFn != nil {
		return m.setAvailabilityFn(ctx, q, userID, available)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockApprovedUserRepo struct {
	findByEmailFn func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error)
}

func (m *mockApprovedUserRepo) FindByEmail(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, q, email)
	}
	return nil, nil
}

type mockProfileRepo struct {
	getDefaultProfileFn           func(ctx context.Context, q database.Querier) (*model.DefaultProfile, error)
	createLessonsAvailabilityFn   func(ctx context.Context, q database.Querier, userID string, la model.LessonsAvailability) error
	createNotificationsSettingsFn func(ctx context.Context, q database.Querier, userID string, ns model.NotificationsSettings) error
}

func (m *mockProfileRepo) GetDefaultProfile(ctx context.Context, q database.Querier) (*model.DefaultProfile, error) {
	if m.getDefaultProfileFn != nil {
		return m.getDefaultProfileFn(ctx, q)
	}
	return &model.DefaultProfile{IsAvailable: true}, nil
}

func (m *mockProfileRepo) CreateLessonsAvailability(ctx context.Context, q database.Querier, userID string, la model.LessonsAvailability) error {
	if m.createLessonsAvailabilityFn != nil {
		return m.createLessonsAvailabilityFn(ctx, q, userID, la)
	}
	return nil
}

func (m *mockProfileRepo) CreateNotificationsSettings(ctx context.Context, q database.Querier, userID string, ns model.NotificationsSettings) error {
	if m.createNotificationsSettingsFn != nil {
		return m.createNotificationsSettingsFn(ctx, q, userID, ns)
	}
	return nil
}

type mockOnboardingRepo struct {
	seedAppFlagsFn func(ctx context.Context, q database.Querier, userID string, trainingEnabled, mentoringEnabled bool) error
	seedTimeZoneFn func(ctx context.Context, q database.Querier, userID, name string) error
	createGoalFn   func(ctx context.Context, q database.Querier, goal *model.Goal) error
}

func (m *mockOnboardingRepo) SeedAppFlags(ctx context.Context, q database.Querier, userID string, trainingEnabled, mentoringEnabled bool) error {
	if m.seedAppFlagsFn != nil {
		return m.seedAppFlagsFn(ctx, q, userID, trainingEnabled, mentoringEnabled)
	}
	return nil
}

func (m *mockOnboardingRepo) SeedTimeZone(ctx context.Context, q database.Querier, userID, name string) error {
	if m.seedTimeZoneFn != nil {
		return m.seedTimeZoneFn(ctx, q, userID, name)
	}
	return nil
}

func (m *mockOnboardingRepo) CreateGoal(ctx context.Context, q database.Querier, goal *model.Goal) error {
	if m.createGoalFn != nil {
		return m.createGoalFn(ctx, q, goal)
	}
	return nil
}

type mockDeviceTokenRepo struct {
	deleteByUserIDFn func(ctx context.Context, q database.Querier, userID string) error
}

func (m *mockDeviceTokenRepo) DeleteByUserID(ctx context.Context, q database.Querier, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, q, userID)
	}
	return nil
}

type mockTokenIssuer struct {
	issuePairFn func(ctx context.Context, q database.Querier, userID string) (*model.TokenPair, error)
	renewFn     func(ctx context.Context, q database.Querier, userID, presented string) (*model.TokenPair, error)
	revokeFn    func(ctx context.Context, q database.Querier, userID string) error
}

func (m *mockTokenIssuer) IssuePair(ctx context.Context, q database.Querier, userID string) (*model.TokenPair, error) {
	if m.issuePairFn != nil {
		return m.issuePairFn(ctx, q, userID)
	}
	return &model.TokenPair{UserID: userID, AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockTokenIssuer) Renew(ctx context.Context, q database.Querier, userID, presented string) (*model.TokenPair, error) {
	if m.renewFn != nil {
		return m.renewFn(ctx, q, userID, presented)
	}
	return &model.TokenPair{UserID: userID}, nil
}

func (m *mockTokenIssuer) Revoke(ctx context.Context, q database.Querier, userID string) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, q, userID)
	}
	return nil
}

// recordingMetrics はMetricsのテスト用実装。
type recordingMetrics struct {
	signups     []string
	logins      []string
	renewals    []string
	revocations int
}

func (m *recordingMetrics) RecordSignup(result string)       { m.signups = append(m.signups, result) }
func (m *recordingMetrics) RecordLogin(result string)        { m.logins = append(m.logins, result) }
func (m *recordingMetrics) RecordTokenRenewal(result string) { m.renewals = append(m.renewals, result) }
func (m *recordingMetrics) RecordRevocation()                { m.revocations++ }

// deps はテスト用の依存一式。個別のテストがフィールドを上書きする。
type deps struct {
	tx         *fakeTxRunner
	users      *mockUserRepo
	approved   *mockApprovedUserRepo
	profile    *mockProfileRepo
	onboarding *mockOnboardingRepo
	devices    *mockDeviceTokenRepo
	tokens     *mockTokenIssuer
	metrics    *recordingMetrics
}

func newDeps() *deps {
	return &deps{
		tx:         &fakeTxRunner{},
		users:      &mockUserRepo{},
		approved:   &mockApprovedUserRepo{},
		profile:    &mockProfileRepo{},
		onboarding: &mockOnboardingRepo{},
		devices:    &mockDeviceTokenRepo{},
		tokens:     &mockTokenIssuer{},
		metrics:    &recordingMetrics{},
	}
}

func (d *deps) build() *Service {
	return NewService(d.tx, d.users, d.approved, d.profile, d.onboarding, d.devices, d.tokens, d.metrics)
}

func approvedStudent() *model.ApprovedUser {
	return &model.ApprovedUser{
		Email:          "student@example.com",
		Name:           "Approved Name",
		FieldID:        "field-1",
		OrganizationID: "org-1",
		IsMentor:       false,
		Goal:           "become a software engineer",
	}
}

func approvedMentor() *model.ApprovedUser {
	return &model.ApprovedUser{
		Email:          "mentor@example.com",
		Name:           "Mentor Name",
		FieldID:        "field-2",
		OrganizationID: "org-2",
		IsMentor:       true,
	}
}

func wantAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError with code %s", err, code)
	}
	if apiErr.Code != code {
		t.Errorf("code = %s, want %s", apiErr.Code, code)
	}
}

// --- SignUp テスト ---

func TestSignUp_MissingFields(t *testing.T) {
	d := newDeps()
	svc := d.build()

	tests := []struct {
		name  string
		input SignUpInput
	}{
		{"no email", SignUpInput{Password: "secret"}},
		{"no password", SignUpInput{Email: "a@b.c"}},
		{"neither", SignUpInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), tt.input)
			wantAPIError(t, err, model.ErrCodeMissingFields)
		})
	}

	// 検証失敗でトランザクションは開始しない
	if d.tx.commits != 0 || d.tx.rollbacks != 0 {
		t.Errorf("validation failures must not open a transaction (commits=%d rollbacks=%d)", d.tx.commits, d.tx.rollbacks)
	}
}

func TestSignUp_InvalidEmail(t *testing.T) {
	d := newDeps()
	svc := d.build()

	for _, email := range []string{"no-at-sign", "no@dot", "@missing.local"} {
		_, err := svc.SignUp(context.Background(), SignUpInput{Email: email, Password: "secret"})
		wantAPIError(t, err, model.ErrCodeInvalidEmail)
	}
}

// メールパターンはアンカーなしで照合するため、周囲に余分な文字列が
// あっても内側に有効なアドレスを含めば検証を通過する。
func TestSignUp_EmailWithSurroundingText_PassesValidation(t *testing.T) {
	d := newDeps()
	svc := d.build()

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "spaces in@email.com x", Password: "secret"})
	wantAPIError(t, err, model.ErrCodeNotApproved)
}

func TestSignUp_DuplicateEmail_RollsBack(t *testing.T) {
	d := newDeps()
	d.users.emailExistsFn = func(ctx context.Context, q database.Querier, email string) (bool, error) {
		return true, nil
	}
	svc := d.build()

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "taken@example.com", Password: "secret"})
	wantAPIError(t, err, model.ErrCodeDuplicateUser)

	if d.tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", d.tx.rollbacks)
	}
	if len(d.metrics.signups) != 1 || d.metrics.signups[0] != "rejected" {
		t.Errorf("signup metrics = %v, want [rejected]", d.metrics.signups)
	}
}

func TestSignUp_NotApproved_RollsBack(t *testing.T) {
	d := newDeps()
	d.approved.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
		return nil, nil
	}
	svc := d.build()

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "stranger@example.com", Password: "secret"})
	wantAPIError(t, err, model.ErrCodeNotApproved)

	if d.tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", d.tx.rollbacks)
	}
}

func TestSignUp_Student_BootstrapsProfileAndGoal(t *testing.T) {
	d := newDeps()
	d.approved.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
		return approvedStudent(), nil
	}
	d.profile.getDefaultProfileFn = func(ctx context.Context, q database.Querier) (*model.DefaultProfile, error) {
		return &model.DefaultProfile{
			IsAvailable:           true,
			NotificationsSettings: model.NotificationsSettings{Enabled: true, Time: "09:00"},
		}, nil
	}

	var createdUser *model.User
	d.users.createFn = func(ctx context.Context, q database.Querier, user *model.User) error {
		createdUser = user
		return nil
	}

	availabilitySet := false
	d.users.setAvailabilityFn = func(ctx context.Context, q database.Querier, userID string, available bool) error {
		availabilitySet = true
		if !available {
			t.Error("availability should copy the default profile value")
		}
		return nil
	}

	lessonsCreated := false
	d.profile.createLessonsAvailabilityFn = func(ctx context.Context, q database.Querier, userID string, la model.LessonsAvailability) error {
		lessonsCreated = true
		return nil
	}

	notificationsCreated := false
	d.profile.createNotificationsSettingsFn = func(ctx context.Context, q database.Querier, userID string, ns model.NotificationsSettings) error {
		notificationsCreated = true
		if ns.Time != "09:00" {
			t.Errorf("notifications time = %q, want %q", ns.Time, "09:00")
		}
		return nil
	}

	flagsSeeded := false
	d.onboarding.seedAppFlagsFn = func(ctx context.Context, q database.Querier, userID string, trainingEnabled, mentoringEnabled bool) error {
		flagsSeeded = true
		if !trainingEnabled || !mentoringEnabled {
			t.Error("app flags should default to enabled")
		}
		return nil
	}

	var createdGoal *model.Goal
	d.onboarding.createGoalFn = func(ctx context.Context, q database.Querier, goal *model.Goal) error {
		createdGoal = goal
		return nil
	}

	svc := d.build()

	pair, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "student@example.com",
		Password: "secret",
		TimeZone: "Asia/Tokyo",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if pair == nil || pair.AccessToken == "" {
		t.Fatal("expected token pair")
	}

	if createdUser == nil {
		t.Fatal("expected user to be created")
	}
	// 省略された名前は承認レコードから補完される
	if createdUser.Name != "Approved Name" {
		t.Errorf("name = %q, want %q", createdUser.Name, "Approved Name")
	}
	if createdUser.FieldID != "field-1" || createdUser.OrganizationID != "org-1" {
		t.Error("field and organization should copy the approval record")
	}
	if createdUser.IsMentor {
		t.Error("student must not be a mentor")
	}
	// パスワードは平文で保存しない
	if createdUser.Password == "secret" {
		t.Error("password must be hashed before storage")
	}
	if !password.Compare(createdUser.Password, "secret") {
		t.Error("stored hash should verify against the plaintext")
	}

	if !availabilitySet || !notificationsCreated || !flagsSeeded {
		t.Error("profile bootstrap steps missing")
	}
	// 学生にはレッスン受け入れポリシーを作らない
	if lessonsCreated {
		t.Error("students must not get a lessons availability row")
	}
	if createdGoal == nil {
		t.Fatal("student should get an initial goal")
	}
	if createdGoal.Text != "become a software engineer" {
		t.Errorf("goal text = %q, want approval record goal", createdGoal.Text)
	}
	if createdGoal.Index != 1 {
		t.Errorf("goal index = %d, want 1", createdGoal.Index)
	}

	if d.tx.commits != 1 {
		t.Errorf("commits = %d, want 1", d.tx.commits)
	}
	if len(d.metrics.signups) != 1 || d.metrics.signups[0] != "success" {
		t.Errorf("signup metrics = %v, want [success]", d.metrics.signups)
	}
}

func TestSignUp_Mentor_GetsLessonsAvailabilityNoGoal(t *testing.T) {
	d := newDeps()
	d.approved.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
		return approvedMentor(), nil
	}
	d.profile.getDefaultProfileFn = func(ctx context.Context, q database.Querier) (*model.DefaultProfile, error) {
		return &model.DefaultProfile{
			IsAvailable:         true,
			LessonsAvailability: model.LessonsAvailability{MinInterval: 2, MinIntervalUnit: "week", MaxStudents: 3},
		}, nil
	}

	var createdLA *model.LessonsAvailability
	d.profile.createLessonsAvailabilityFn = func(ctx context.Context, q database.Querier, userID string, la model.LessonsAvailability) error {
		createdLA = &la
		return nil
	}

	goalCreated := false
	d.onboarding.createGoalFn = func(ctx context.Context, q database.Querier, goal *model.Goal) error {
		goalCreated = true
		return nil
	}

	svc := d.build()

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Name:     "Custom Name",
		Email:    "mentor@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	if createdLA == nil {
		t.Fatal("mentor should get a lessons availability row")
	}
	if createdLA.MaxStudents != 3 {
		t.Errorf("max students = %d, want 3", createdLA.MaxStudents)
	}
	if goalCreated {
		t.Error("mentors must not get an initial goal")
	}
}

func TestSignUp_RequestNameOverridesApproval(t *testing.T) {
	d := newDeps()
	d.approved.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
		return approvedStudent(), nil
	}

	var createdUser *model.User
	d.users.createFn = func(ctx context.Context, q database.Querier, user *model.User) error {
		createdUser = user
		return nil
	}
	svc := d.build()

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Name:     "Given Name",
		Email:    "student@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if createdUser.Name != "Given Name" {
		t.Errorf("name = %q, want %q", createdUser.Name, "Given Name")
	}
}

func TestSignUp_TimeZoneSeededOnlyWhenPresent(t *testing.T) {
	d := newDeps()
	d.approved.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
		return approvedStudent(), nil
	}

	var seededTZ []string
	d.onboarding.seedTimeZoneFn = func(ctx context.Context, q database.Querier, userID, name string) error {
		seededTZ = append(seededTZ, name)
		return nil
	}
	svc := d.build()

	if _, err := svc.SignUp(context.Background(), SignUpInput{Email: "student@example.com", Password: "secret"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if len(seededTZ) != 0 {
		t.Errorf("time zone should not be seeded when absent, got %v", seededTZ)
	}

	if _, err := svc.SignUp(context.Background(), SignUpInput{Email: "student@example.com", Password: "secret", TimeZone: "Asia/Tokyo"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if len(seededTZ) != 1 || seededTZ[0] != "Asia/Tokyo" {
		t.Errorf("seeded time zones = %v, want [Asia/Tokyo]", seededTZ)
	}
}

func TestSignUp_BootstrapFailure_RollsBackEverything(t *testing.T) {
	d := newDeps()
	d.approved.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
		return approvedStudent(), nil
	}
	d.profile.createNotificationsSettingsFn = func(ctx context.Context, q database.Querier, userID string, ns model.NotificationsSettings) error {
		return errors.New("insert failed")
	}

	tokensIssued := false
	d.tokens.issuePairFn = func(ctx context.Context, q database.Querier, userID string) (*model.TokenPair, error) {
		tokensIssued = true
		return nil, nil
	}
	svc := d.build()

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "student@example.com", Password: "secret"})
	if err == nil {
		t.Fatal("expected error from failed bootstrap step")
	}

	if d.tx.commits != 0 {
		t.Error("partial signup must not commit")
	}
	if d.tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", d.tx.rollbacks)
	}
	if tokensIssued {
		t.Error("tokens must not be issued after a failed bootstrap step")
	}
	if len(d.metrics.signups) != 1 || d.metrics.signups[0] != "error" {
		t.Errorf("signup metrics = %v, want [error]", d.metrics.signups)
	}
}

// TestSignUp_CommitTimeUniqueViolation は事前チェックをすり抜けた
// 同時サインアップが登録済みエラーとして返ることを検証する。
func TestSignUp_CommitTimeUniqueViolation(t *testing.T) {
	d := newDeps()
	d.approved.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
		return approvedStudent(), nil
	}
	d.tx.commitErr = &pq.Error{Code: "23505"}
	svc := d.build()

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "student@example.com", Password: "secret"})
	wantAPIError(t, err, model.ErrCodeDuplicateUser)
}

// --- Login テスト ---

func TestLogin_Success(t *testing.T) {
	hash, err := password.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	d := newDeps()
	d.users.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.User, error) {
		return &model.User{ID: "user-123", Email: email, Password: hash}, nil
	}
	svc := d.build()

	pair, err := svc.Login(context.Background(), "student@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", pair.UserID, "user-123")
	}
	if len(d.metrics.logins) != 1 || d.metrics.logins[0] != "success" {
		t.Errorf("login metrics = %v, want [success]", d.metrics.logins)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newDeps().build()

	_, err := svc.Login(context.Background(), "", "secret")
	wantAPIError(t, err, model.ErrCodeMissingFields)

	_, err = svc.Login(context.Background(), "a@b.c", "")
	wantAPIError(t, err, model.ErrCodeMissingFields)
}

// TestLogin_UnknownEmailAndWrongPassword_SameError は未登録メールアドレスと
// パスワード不一致が同一のエラーを返すことを検証する。
func TestLogin_UnknownEmailAndWrongPassword_SameError(t *testing.T) {
	hash, err := password.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	d := newDeps()
	d.users.findByEmailFn = func(ctx context.Context, q database.Querier, email string) (*model.User, error) {
		if email == "known@example.com" {
			return &model.User{ID: "user-123", Email: email, Password: hash}, nil
		}
		return nil, nil
	}
	svc := d.build()

	_, unknownErr := svc.Login(context.Background(), "unknown@example.com", "secret")
	wantAPIError(t, unknownErr, model.ErrCodeInvalidCredentials)

	_, wrongErr := svc.Login(context.Background(), "known@example.com", "wrong")
	wantAPIError(t, wrongErr, model.ErrCodeInvalidCredentials)

	if unknownErr.Error() != wrongErr.Error() {
		t.Error("unknown email and wrong password must be indistinguishable")
	}
}

// --- Logout テスト ---

func TestLogout_RevokesSessionAndDeviceTokens(t *testing.T) {
	d := newDeps()

	revoked := false
	d.tokens.revokeFn = func(ctx context.Context, q database.Querier, userID string) error {
		revoked = true
		if userID != "user-123" {
			t.Errorf("userID = %q, want %q", userID, "user-123")
		}
		return nil
	}

	devicesDeleted := false
	d.devices.deleteByUserIDFn = func(ctx context.Context, q database.Querier, userID string) error {
		devicesDeleted = true
		return nil
	}
	svc := d.build()

	if err := svc.Logout(context.Background(), "user-123"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if !revoked || !devicesDeleted {
		t.Error("logout must revoke the session and delete device tokens")
	}
	if d.tx.commits != 1 {
		t.Errorf("commits = %d, want 1", d.tx.commits)
	}
	if d.metrics.revocations != 1 {
		t.Errorf("revocations = %d, want 1", d.metrics.revocations)
	}
}

func TestLogout_RevocationFailureIsReturned(t *testing.T) {
	d := newDeps()
	d.tokens.revokeFn = func(ctx context.Context, q database.Querier, userID string) error {
		return errors.New("delete failed")
	}
	svc := d.build()

	if err := svc.Logout(context.Background(), "user-123"); err == nil {
		t.Fatal("revocation failure must not be silent")
	}
	if d.metrics.revocations != 0 {
		t.Error("failed logout must not record a revocation")
	}
}

// --- RefreshTokens テスト ---

func TestRefreshTokens_Success(t *testing.T) {
	d := newDeps()
	d.tokens.renewFn = func(ctx context.Context, q database.Querier, userID, presented string) (*model.TokenPair, error) {
		if presented != "current-token" {
			t.Errorf("presented = %q, want %q", presented, "current-token")
		}
		return &model.TokenPair{UserID: userID, AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
	}
	svc := d.build()

	pair, err := svc.RefreshTokens(context.Background(), "user-123", "current-token")
	if err != nil {
		t.Fatalf("RefreshTokens failed: %v", err)
	}
	if pair.RefreshToken != "new-refresh" {
		t.Errorf("RefreshToken = %q, want %q", pair.RefreshToken, "new-refresh")
	}
	if d.tx.commits != 1 {
		t.Errorf("commits = %d, want 1", d.tx.commits)
	}
	if len(d.metrics.renewals) != 1 || d.metrics.renewals[0] != "success" {
		t.Errorf("renewal metrics = %v, want [success]", d.metrics.renewals)
	}
}

// TestRefreshTokens_MismatchCommitsRevocation は不一致時の
// フェイルクローズ失効がロールバックされずコミットされることを検証する。
func TestRefreshTokens_MismatchCommitsRevocation(t *testing.T) {
	d := newDeps()
	d.tokens.renewFn = func(ctx context.Context, q database.Querier, userID, presented string) (*model.TokenPair, error) {
		return nil, model.NewInvalidRefreshTokenError()
	}
	svc := d.build()

	_, err := svc.RefreshTokens(context.Background(), "user-123", "stolen-token")
	wantAPIError(t, err, model.ErrCodeInvalidRefresh)

	// 拒否応答とともに失効がコミットされること
	if d.tx.commits != 1 {
		t.Errorf("commits = %d, want 1 (revocation must be committed)", d.tx.commits)
	}
	if d.tx.rollbacks != 0 {
		t.Errorf("rollbacks = %d, want 0", d.tx.rollbacks)
	}
	if len(d.metrics.renewals) != 1 || d.metrics.renewals[0] != "rejected" {
		t.Errorf("renewal metrics = %v, want [rejected]", d.metrics.renewals)
	}
}

func TestRefreshTokens_StorageFailure(t *testing.T) {
	d := newDeps()
	d.tokens.renewFn = func(ctx context.Context, q database.Querier, userID, presented string) (*model.TokenPair, error) {
		return nil, errors.New("pq: connection refused")
	}
	svc := d.build()

	_, err := svc.RefreshTokens(context.Background(), "user-123", "token")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Error("storage failure must not be reported as a token rejection")
	}
	if len(d.metrics.renewals) != 1 || d.metrics.renewals[0] != "error" {
		t.Errorf("renewal metrics = %v, want [error]", d.metrics.renewals)
	}
}

// TestService_NilMetrics はメトリクス未設定でもパニックしないことを検証する。
func TestService_NilMetrics(t *testing.T) {
	d := newDeps()
	svc := NewService(d.tx, d.users, d.approved, d.profile, d.onboarding, d.devices, d.tokens, nil)

	if err := svc.Logout(context.Background(), "user-123"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	_, err := svc.SignUp(context.Background(), SignUpInput{})
	wantAPIError(t, err, model.ErrCodeMissingFields)
}
