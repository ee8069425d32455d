// devices - list available video input devices
package main

import (
	"fmt"
	"os"

	"github.com/pixelgrove/qrscan/pkg/device"
)

func main() {
	devices, err := device.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "enumeration failed: %v\n", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("no video input devices found")
		return
	}

	for _, d := range devices {
		fmt.Printf("%d\t%s\t%s\n", d.Index, d.ID, d.Name)
	}
}
