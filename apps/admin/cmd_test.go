package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
	appfs "github.com/Faiver55/skylearn-flashcards-sub001/fs"
	emailsvc "github.com/Faiver55/skylearn-flashcards-sub001/services/email"
	inmemdb "github.com/Faiver55/skylearn-flashcards-sub001/storage/database/inmem"
	"github.com/Faiver55/skylearn-flashcards-sub001/testutil"
)

var (
	usrRepo user.Repository
	setRepo flashcard.Repository
	out     *bytes.Buffer
)

type stubProbe struct {
	version string
}

func (p stubProbe) Detect(context.Context) (lms.Descriptor, error) {
	return lms.Descriptor{Version: p.version, Active: p.version != ""}, nil
}

type stubAdapter struct {
	name string
}

func (a stubAdapter) Name() string { return a.name }

func (stubAdapter) CheckEnrolled(context.Context, string, lms.Unit) (bool, error)  { return false, nil }
func (stubAdapter) CheckCompleted(context.Context, string, lms.Unit) (bool, error) { return false, nil }
func (stubAdapter) MarkComplete(context.Context, string, lms.Unit) error           { return nil }

func setup(t *testing.T) *commandLine {
	conf := testutil.NewConfig()
	logger := core.NopLogger{}
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)
	emailsvc.ClearSentMessages()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	setRepo = inmemdb.NewSetRepository(db)

	gate := plan.Gate{Tier: plan.TierPremium}
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	setSvc := flashcard.NewService(setRepo, progress.NewService(inmemdb.NewCompletionRepository(db)), gate)
	out = new(bytes.Buffer)

	// start CLI
	return &commandLine{
		usrRepo: usrRepo,
		registry: lms.NewRegistry(
			logger,
			lms.Integration{Name: lms.LearnDash, Probe: stubProbe{version: "4.10.2"}, Adapter: stubAdapter{name: lms.LearnDash}},
			lms.Integration{Name: lms.TutorLMS, Probe: stubProbe{}, Adapter: stubAdapter{name: lms.TutorLMS}},
		),
		settings: lms.NewSettingsStore(inmemdb.NewOptionStore(db), logger),
		leadSvc:  lead.NewService(inmemdb.NewLeadRepository(db), setSvc, nil, mailSvc, gate, conf, logger),
		out:      out,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkRunErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
		return
	}
	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		if dir != appfs.MigrationsDir {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "quiz", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	existing := testutil.CreateUser(t, usrRepo, "Jane", "jane", "jane@example.com", "", []string{user.RoleLearner}, false)

	type extra struct {
		pwd       string
		uname     string
		wantRoles []string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email missing", args: []string{"adduser", "-username", "john"}, extra: extra{pwd: "lol"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "john", "-email", "john@example.com"}, wantErr: errHelp},
		{
			name:  "create learner",
			args:  []string{"adduser", "-username", " John ", "-email", "John@Example.com", "-name", "John"},
			extra: extra{pwd: "lol", uname: "john", wantRoles: user.LearnerRoles},
		},
		{
			name:  "create admin",
			args:  []string{"adduser", "-username", "boss", "-email", "boss@example.com", "-admin"},
			extra: extra{pwd: "lol", uname: "boss", wantRoles: user.AllRoles},
		},
		{
			name:  "update existing",
			args:  []string{"adduser", "-username", "jane", "-email", "jane@example.com", "-author"},
			extra: extra{pwd: "lmao", uname: "jane", wantRoles: user.AuthorRoles},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkRunErr(t, tt, err)
			if err != nil {
				return
			}

			want := tt.extra.(extra)
			usr, err := usrRepo.GetUserByUsernameOrEmail(context.Background(), want.uname)
			if err != nil {
				t.Fatalf("GetUserByUsernameOrEmail() failed, %v", err)
			}
			if !usr.IsActive {
				t.Error("user is not active")
			}
			if err = usr.CheckPassword(want.pwd); err != nil {
				t.Errorf("CheckPassword() failed, %v", err)
			}
			if strings.Join(usr.Roles, ",") != strings.Join(want.wantRoles, ",") {
				t.Errorf("usr.Roles = %v; want %v", usr.Roles, want.wantRoles)
			}
			if want.uname == existing.Username && usr.ID != existing.ID {
				t.Error("existing user was duplicated")
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				if err = refreshedUsr.CheckPassword(tt.extra.(extra).pwd); err != nil {
					t.Errorf("CheckPassword() failed, %v", err)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_lms(t *testing.T) {
	cli := setup(t)

	t.Run("usage", func(t *testing.T) {
		for _, args := range [][]string{{"admin", "lms"}, {"admin", "lms", "lol"}} {
			if err := cli.run(args); err != errHelp {
				t.Errorf("cli.run(%v) error = %v, wantErr %v", args, err, errHelp)
			}
		}
	})

	t.Run("detect", func(t *testing.T) {
		out.Reset()
		if err := cli.run([]string{"admin", "lms", "detect"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("detect printed %q", out.String())
		}
		if f := strings.Fields(lines[1]); strings.Join(f, " ") != "LearnDash 4.10.2 active" {
			t.Errorf("lines[1] = %q", lines[1])
		}
		if f := strings.Fields(lines[2]); strings.Join(f, " ") != "TutorLMS - inactive" {
			t.Errorf("lines[2] = %q", lines[2])
		}
	})

	printed := func(t *testing.T) lms.Settings {
		t.Helper()
		var s lms.Settings
		if err := json.Unmarshal(out.Bytes(), &s); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v; output %q", err, out.String())
		}
		return s
	}

	tests := []struct {
		name string
		args []string
		want lms.Settings
	}{
		{name: "defaults", want: lms.DefaultSettings()},
		{
			name: "enable",
			args: []string{"-enabled", "-accuracy", "65", "-restrict"},
			want: lms.Settings{Enabled: true, RequiredAccuracy: 65, AutoComplete: true, ProgressTracking: true, EnrollmentRestriction: true},
		},
		{
			name: "out of range accuracy & partial update",
			args: []string{"-accuracy", "120", "-autocomplete=false"},
			want: lms.Settings{Enabled: true, RequiredAccuracy: 80, ProgressTracking: true, EnrollmentRestriction: true},
		},
		{
			name: "print saved",
			want: lms.Settings{Enabled: true, RequiredAccuracy: 80, ProgressTracking: true, EnrollmentRestriction: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			if err := cli.run(append([]string{"admin", "lms", "settings"}, tt.args...)); err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}
			if got := printed(t); got != tt.want {
				t.Errorf("settings = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func Test_commandLine_leads(t *testing.T) {
	cli := setup(t)
	author := testutil.CreateUser(t, usrRepo, "Author", "author", "author@example.com", "", []string{user.RoleAuthor}, true)
	s := testutil.CreateSet(t, setRepo, author.ID, "Capitals", lms.VisibilityAll, nil)
	if _, err := cli.leadSvc.Capture(context.Background(), lead.NewLead{SetID: s.ID, Name: "Jane", Email: "jane@example.com"}); err != nil {
		t.Fatalf("Capture() failed: %v", err)
	}

	t.Run("usage", func(t *testing.T) {
		for _, args := range [][]string{{"admin", "leads"}, {"admin", "leads", "lol"}} {
			if err := cli.run(args); err != errHelp {
				t.Errorf("cli.run(%v) error = %v, wantErr %v", args, err, errHelp)
			}
		}
	})

	t.Run("export", func(t *testing.T) {
		out.Reset()
		if err := cli.run([]string{"admin", "leads", "export"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 2 || !strings.Contains(lines[1], ","+s.ID+",Jane,jane@example.com,") {
			t.Errorf("export printed %q", out.String())
		}
	})

	t.Run("export-mail", func(t *testing.T) {
		emailsvc.ClearSentMessages()
		if err := cli.run([]string{"admin", "leads", "export-mail"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		msg, ok := emailsvc.LastSentMessage()
		if !ok || msg.TemplateName != "leads_export" || len(msg.Attachments) != 1 {
			t.Errorf("leads export mail = %+v, %v", msg, ok)
		}
	})
}
