package main

import "github.com/OpenTraceLab/OpenTraceICEPick/cmd/icepick/cmd"

func main() {
	cmd.Execute()
}
