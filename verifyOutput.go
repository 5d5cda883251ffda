package main

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// OutputProblem is a syntax error found in transformed code.
type OutputProblem struct {
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
	Message  string `json:"message" yaml:"message"`
	LineText string `json:"lineText,omitempty" yaml:"lineText,omitempty"`
}

func (p OutputProblem) String() string {
	if p.Line == 0 {
		return p.Message
	}
	return fmt.Sprintf("%d:%d %s", p.Line, p.Column, p.Message)
}

// VerifyOutput parses code as plain JavaScript and returns the syntax errors
// esbuild reports. Line numbers are 1-based, columns 0-based.
func VerifyOutput(code string, filename string) []OutputProblem {
	result := api.Transform(code, api.TransformOptions{
		Loader:     api.LoaderJS,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})

	problems := make([]OutputProblem, 0, len(result.Errors))
	for _, msg := range result.Errors {
		problem := OutputProblem{Message: msg.Text}
		if msg.Location != nil {
			problem.Line = msg.Location.Line
			problem.Column = msg.Location.Column
			problem.LineText = msg.Location.LineText
		}
		problems = append(problems, problem)
	}
	return problems
}
