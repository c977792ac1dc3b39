// Command kpictl is the operator CLI of the scoring pipeline: it validates and scores
// KPI fixtures offline and triggers reprocessing and segment recomputation.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
