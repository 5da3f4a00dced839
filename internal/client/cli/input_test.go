package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubTerminal(t *testing.T, terminal bool, read func(int) ([]byte, error)) {
	t.Helper()
	origRead, origIs := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origIs })

	isTerminal = func(int) bool { return terminal }
	readPassword = read
}

func TestGetSimpleText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "line", input: "team-a\n", want: "team-a"},
		{name: "trims spaces", input: "  alice \r\n", want: "alice"},
		{name: "last line without newline", input: "lastline", want: "lastline"},
		{name: "empty input", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetSimpleText(bufio.NewReader(strings.NewReader(tt.input)), promptGroupName, &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Enter group name\n> ", out.String())
		})
	}
}

func TestGetPassword_Terminal(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("s3cret"), nil })

	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("not-this\n"))
	pw, err := GetPassword(in, promptGroupPassword, &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Enter group password: \n", out.String())

	rest, _ := in.ReadString('\n')
	assert.Equal(t, "not-this\n", rest, "terminal read leaves the line reader alone")
}

func TestGetPassword_TerminalError(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	var out bytes.Buffer
	_, err := GetPassword(bufio.NewReader(strings.NewReader("")), promptUserPassword, &out)
	assert.EqualError(t, err, "boom")
}

func TestGetPassword_Piped(t *testing.T) {
	stubTerminal(t, false, func(int) ([]byte, error) {
		t.Fatal("terminal must not be read when stdin is piped")
		return nil, nil
	})

	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("pw1\nupload a.txt\n"))
	pw, err := GetPassword(in, promptUserPassword, &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw1"), pw)
	assert.Equal(t, "Enter password: \n", out.String())

	next, err := GetSimpleText(in, "cmd", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "upload a.txt", next)

	_, err = GetPassword(bufio.NewReader(strings.NewReader("")), promptUserPassword, &out)
	assert.Error(t, err)
}
