// Command pagesplit reads weighted items from a file and prints the
// balanced grouping chosen by the pagesplit package.
//
//	pagesplit split items.yaml --max-groups 8 --round-up 0.5
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
