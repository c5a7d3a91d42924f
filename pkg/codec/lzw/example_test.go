package lzw_test

import (
	"fmt"

	"github.com/matzehuels/pivotframe/pkg/codec/lzw"
)

func ExampleEncode() {
	packed, _ := lzw.Encode("TOBEORNOTTOBEORTOBEORNOT")
	text, _ := lzw.Decode(packed)
	fmt.Println(len([]rune(packed)), text)
	// Output: 16 TOBEORNOTTOBEORTOBEORNOT
}
