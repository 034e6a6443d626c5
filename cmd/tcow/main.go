package main

import "os"

func main() {
	code := run()
	if code != 0 {
		os.Exit(code)
	}
}
