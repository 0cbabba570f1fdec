// Body template checker - loads a prototype set and reports content problems.
//
// Usage: go run ./cmd/templatecheck [-file prototypes.yaml]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pthm-cable/anatomy/prototype"
)

func main() {
	file := flag.String("file", "", "Prototype YAML file (empty = embedded set)")
	flag.Parse()

	var (
		reg *prototype.Registry
		err error
	)
	if *file == "" {
		reg, err = prototype.LoadDefault()
	} else {
		var data []byte
		data, err = os.ReadFile(*file)
		if err == nil {
			reg, err = prototype.Load(data)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(2)
	}

	problems := reg.Validate()
	for _, p := range problems {
		fmt.Println(p)
	}
	fmt.Printf("%d templates, %d problems\n", len(reg.TemplateIDs()), len(problems))
	if len(problems) > 0 {
		os.Exit(1)
	}
}
