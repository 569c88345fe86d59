package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of resolve --ui.
type uiMode uint8

const (
	uiModeAuto uiMode = iota
	uiModeOn
	uiModeOff
)

var uiModeNames = map[string]uiMode{
	"":      uiModeAuto,
	"auto":  uiModeAuto,
	"on":    uiModeOn,
	"true":  uiModeOn,
	"off":   uiModeOff,
	"false": uiModeOff,
}

func readUIMode(value string) (uiMode, error) {
	mode, ok := uiModeNames[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return uiModeAuto, fmt.Errorf("resolve: invalid --ui value %q (expected auto|on|off)", value)
	}
	return mode, nil
}

// progressViewEnabled decides whether resolve draws the live progress view
// for a batch of scripts. An empty batch has nothing to show.
func progressViewEnabled(mode uiMode, out *os.File, scripts int) bool {
	if scripts == 0 {
		return false
	}
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(out)
	}
}
