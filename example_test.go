package bcm_test

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/mewkiz/bcm"
)

func Example() {
	// Compress a short text into an in-memory BCM stream.
	text := "a man a plan a canal panama"
	compressed := new(bytes.Buffer)
	if err := bcm.Encode(compressed, strings.NewReader(text), 0); err != nil {
		log.Fatalf("%+v", err)
	}

	// Decompress it again.
	decompressed := new(bytes.Buffer)
	if err := bcm.Decode(decompressed, compressed); err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Println(decompressed.String())
	// Output: a man a plan a canal panama
}

func ExampleNewWriter() {
	// Stream input to a writer in pieces; blocks are cut by the writer.
	compressed := new(bytes.Buffer)
	zw, err := bcm.NewWriter(compressed, &bcm.WriterConfig{BlockSize: 16})
	if err != nil {
		log.Fatalf("%+v", err)
	}
	for _, chunk := range []string{"banana ", "banana ", "banana"} {
		if _, err := zw.Write([]byte(chunk)); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if err := zw.Close(); err != nil {
		log.Fatalf("%+v", err)
	}

	decompressed := new(bytes.Buffer)
	if err := bcm.Decode(decompressed, compressed); err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Println(decompressed.String())
	// Output: banana banana banana
}
