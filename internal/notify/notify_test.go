package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSend(t *testing.T) {
	var got []string
	n := New(true, nil)
	n.send = func(title, message string) error {
		got = append(got, title+": "+message)
		return errors.New("no daemon")
	}

	n.Send("hourbridge", "3 entries uploaded")

	assert.Equal(t, []string{"hourbridge: 3 entries uploaded"}, got)
}

func TestSend_Disabled(t *testing.T) {
	called := false
	n := New(false, nil)
	n.send = func(string, string) error {
		called = true
		return nil
	}

	n.Send("hourbridge", "ignored")
	var nilNotifier *Notifier
	nilNotifier.Send("hourbridge", "ignored")

	assert.False(t, called)
}
