package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/roffe/gokwp/pkg/iso14230"
	"github.com/roffe/gokwp/pkg/poller"
)

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
)

func hexString(b []byte) string {
	return fmt.Sprintf("% X", b)
}

// formatFrame prints the length byte, the payload and the checksum, the
// checksum green when the frame is valid
func formatFrame(b []byte) string {
	if len(b) < 2 {
		return red("%s", hexString(b))
	}
	cs := green
	if !iso14230.Valid(b) {
		cs = red
	}
	var out strings.Builder
	out.WriteString(yellow("%02X", b[0]))
	if len(b) > 2 {
		out.WriteString(" " + hexString(b[1:len(b)-1]))
	}
	out.WriteString(" " + cs("%02X", b[len(b)-1]))
	return out.String()
}

func formatResult(res poller.Result) string {
	prefix := fmt.Sprintf("%s %-6s ", res.Time.Format("15:04:05.000"), res.State)
	if res.Err != nil {
		return prefix + red("error: %v", res.Err)
	}
	line := prefix + formatFrame(res.Data)
	if res.Stale {
		line += " " + red("stale")
	}
	return line
}
