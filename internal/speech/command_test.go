package speech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandArgs_Espeak(t *testing.T) {
	u := Utterance{Text: "seek help", Rate: DefaultRate, Pitch: DefaultPitch, Volume: DefaultVolume}
	require.Equal(t,
		[]string{"-s", "158", "-p", "50", "-a", "100", "--", "seek help"},
		commandArgs("espeak-ng", u))
}

func TestCommandArgs_Say(t *testing.T) {
	u := Utterance{Text: "seek help", Rate: DefaultRate, Pitch: DefaultPitch, Volume: DefaultVolume}
	require.Equal(t, []string{"-r", "158", "seek help"}, commandArgs("say", u))
}

func TestNewCommandSynthesizer_Unresolvable(t *testing.T) {
	s := NewCommandSynthesizer("no-such-tts-binary-for-tests")
	require.False(t, s.Available())
	require.Error(t, s.Speak(Utterance{Text: "x"}, nil))
	require.NotPanics(t, s.Cancel)
}

func TestDispatcher_WithUnavailableCommand(t *testing.T) {
	d := NewDispatcher(NewCommandSynthesizer("no-such-tts-binary-for-tests"))
	require.NotPanics(t, func() { d.Speak("emergency") })
	require.Empty(t, d.CurrentUtteranceID())
}
