package speech

import (
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// baseWordsPerMinute is the natural rate of espeak and say.
const baseWordsPerMinute = 175

var candidateCommands = []string{"espeak-ng", "espeak", "say"}

// CommandSynthesizer speaks through a local TTS binary run as a child process.
type CommandSynthesizer struct {
	path string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSynthesizer resolves the TTS binary. When override is empty the
// first of espeak-ng, espeak and say found on PATH is used. If nothing
// resolves the synthesizer reports itself unavailable.
func NewCommandSynthesizer(override string) *CommandSynthesizer {
	names := candidateCommands
	if override != "" {
		names = []string{override}
	}
	for _, name := range names {
		if p, err := exec.LookPath(name); err == nil {
			return &CommandSynthesizer{path: p}
		}
	}
	return &CommandSynthesizer{}
}

func (s *CommandSynthesizer) Available() bool {
	return s != nil && s.path != ""
}

func (s *CommandSynthesizer) Speak(u Utterance, done func()) error {
	if !s.Available() {
		return errors.New("speech: no synthesizer command")
	}
	cmd := exec.Command(s.path, commandArgs(filepath.Base(s.path), u)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("speech: start %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
		if done != nil {
			done()
		}
	}()
	return nil
}

func (s *CommandSynthesizer) Cancel() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.cmd = nil
}

func commandArgs(name string, u Utterance) []string {
	wpm := strconv.Itoa(int(math.Round(baseWordsPerMinute * u.Rate)))
	if name == "say" {
		return []string{"-r", wpm, u.Text}
	}
	// espeak pitch is 0-99 with 50 as neutral, amplitude 0-200 with 100 as normal.
	pitch := strconv.Itoa(int(math.Round(50 * u.Pitch)))
	amplitude := strconv.Itoa(int(math.Round(100 * u.Volume)))
	return []string{"-s", wpm, "-p", pitch, "-a", amplitude, "--", u.Text}
}
