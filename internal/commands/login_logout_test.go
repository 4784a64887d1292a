package commands_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"taskdeck/internal/commands"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

func TestLoginCommand_WithFlags(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetAuthenticated(false)

	cmd := &commands.LoginCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"--email", "dev@example.com", "--password", "hunter2"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "logged in as dev@example.com\n" {
		t.Errorf("expected login confirmation, got %q", stdout)
	}
}

func TestLoginCommand_Prompts(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetAuthenticated(false)

	cmd := &commands.LoginCmd{}
	cmd.SetInput(strings.NewReader("dev@example.com\nhunter2\n"))
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if !strings.Contains(stderr, "Email: ") || !strings.Contains(stderr, "Password: ") {
		t.Errorf("expected prompts on stderr, got %q", stderr)
	}
	if stdout != "logged in as dev@example.com\n" {
		t.Errorf("expected login confirmation, got %q", stdout)
	}
}

func TestLoginCommand_EmptyCredentials(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.LoginCmd{}
	cmd.SetInput(strings.NewReader("\n\n"))
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "Email: Password: error: email and password required\n" {
		t.Errorf("expected credentials error, got %q", stderr)
	}
}

func TestLoginCommand_BadCredentials(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.LoginErr = &service.APIError{Status: 401, Detail: "Incorrect email or password"}

	cmd := &commands.LoginCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"--email", "dev@example.com", "--password", "wrong"}, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: Incorrect email or password\n" {
		t.Errorf("expected server detail, got %q", stderr)
	}
}

func TestLoginCommand_NetworkError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.LoginErr = fmt.Errorf("%w: unable to connect to the server at http://localhost:8000", service.ErrNetwork)

	cmd := &commands.LoginCmd{}
	_, stderr, code := runCommand(t, cmd, svc, []string{"--email", "dev@example.com", "--password", "hunter2"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "unable to connect") {
		t.Errorf("expected a connection error, got %q", stderr)
	}
}

func TestLoginCommand_VerificationFails(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CurrentUserErr = errors.New("boom")

	cmd := &commands.LoginCmd{}
	_, stderr, code := runCommand(t, cmd, svc, []string{"--email", "dev@example.com", "--password", "hunter2"}, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: login accepted but session could not be verified\n" {
		t.Errorf("expected verification error, got %q", stderr)
	}
}

func TestLogoutCommand(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.LogoutCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}

	found := false
	for _, call := range svc.Calls {
		if call == "Logout" {
			found = true
		}
	}
	if !found {
		t.Error("expected the remote logout endpoint to be called")
	}
}

func TestLogoutCommand_Idempotent(t *testing.T) {
	svc := testutil.NewFakeService()

	for i := 0; i < 2; i++ {
		cmd := &commands.LogoutCmd{}
		stdout, _, code := runCommand(t, cmd, svc, nil, false)
		if code != exitcode.Success {
			t.Errorf("run %d: expected exit code %d, got %d", i+1, exitcode.Success, code)
		}
		if stdout != "ok\n" {
			t.Errorf("run %d: expected 'ok\\n', got %q", i+1, stdout)
		}
	}
}

func TestLogoutCommand_RemoteFailureStillSucceeds(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.LogoutErr = errors.New("server unreachable")

	cmd := &commands.LogoutCmd{}
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
}

func TestLogoutCommand_NoBackend(t *testing.T) {
	cmd := &commands.LogoutCmd{}
	stdout, _, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
}
