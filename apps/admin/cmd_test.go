package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	env := testutil.NewEnv(t)
	return &commandLine{
		usrSvc:     env.UserSvc,
		validate:   env.Validate,
		translator: env.Translator,
	}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	pwd        string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := tt.pwd
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				if assert.NoError(t, err) && check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var ran []string
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: VERSION", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	runCliTests(t, cli, tests, nil)
	assert.Equal(t, []string{"up", "up-to", "down-to", "status"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	testutil.CreateUser(t, env.UserRepo, user.RoleTeacher, "mr.smith", "Will", "Smith")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"adduser", "-username", "ada"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "ada", "-first", "Ada", "-last", "Lovelace"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"adduser", "-username", "ada", "-first", "Ada", "-last", "Lovelace"},
			pwd: "12345678", wantErrStr: "password: password cannot be entirely numeric",
		},
		{
			name: "invalid role", args: []string{"adduser", "-username", "ada", "-first", "Ada", "-last", "Lovelace", "-role", "banana"},
			pwd: testutil.DefaultPassword, wantErrStr: "role: invalid role",
		},
		{
			name: "taken username", args: []string{"adduser", "-username", "MR.Smith", "-first", "Will", "-last", "Smith"},
			pwd: testutil.DefaultPassword, wantErrStr: user.ErrUsernameExists.Error(),
		},
		{name: "ok", args: []string{"adduser", "-username", "Ada", "-first", "Ada", "-last", "Lovelace"}, pwd: testutil.DefaultPassword},
		{
			name: "teacher", args: []string{"adduser", "-username", "alan", "-first", "Alan", "-last", "Turing", "-role", "teacher"},
			pwd: testutil.DefaultPassword,
		},
	}
	runCliTests(t, cli, tests, nil)

	ada, err := env.UserSvc.GetByUsername(context.Background(), "ada")
	if assert.NoError(t, err) {
		assert.Equal(t, user.RoleAdmin, ada.Role)
		assert.NoError(t, ada.CheckPassword(testutil.DefaultPassword))
	}
	alan, err := env.UserSvc.GetByUsername(context.Background(), "alan")
	if assert.NoError(t, err) {
		assert.Equal(t, user.RoleTeacher, alan.Role)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "john.doe", "John", "Doe")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "N3w-Passw0rd!", wantErr: user.ErrNotFound},
		{
			name: "too short", args: []string{"resetpassword", "-username", usr.Username}, pwd: "Ab1!",
			wantErrStr: "password: password must contain at least 8 characters",
		},
		{name: "reset", args: []string{"resetpassword", "-username", "JOHN.doe"}, pwd: "N3w-Passw0rd!"},
	}
	runCliTests(t, cli, tests, func(t *testing.T, tt cliTest) {
		refreshed, err := env.UserSvc.GetByID(context.Background(), usr.ID)
		if assert.NoError(t, err) {
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
			assert.Error(t, refreshed.CheckPassword(testutil.DefaultPassword))
		}
	})
}
