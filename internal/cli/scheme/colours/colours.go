package colours

import "github.com/fatih/color"

// Color scheme for the CLI
var (
	Title   = color.New(color.FgCyan, color.Bold)
	Step    = color.New(color.Faint)
	Route   = color.New(color.FgMagenta)
	Status  = color.New(color.FgBlue)
	Alert   = color.New(color.FgRed)
	Speech  = color.New(color.FgYellow, color.Bold)
	Prompt  = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Success = color.New(color.FgGreen)
	Info    = color.New(color.FgBlue)
	Warning = color.New(color.FgYellow)
)
