package pkg

import "fmt"

var (
	// These variables are here only to show current version. They are set by ldflags during build process
	InselVersion         = "devel"
	GitRevision          = "devel"
	InselVersionRevision = fmt.Sprintf("%s-%s", InselVersion, GitRevision)
)
