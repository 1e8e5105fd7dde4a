// devtoken 本地开发用 Token 工具
//
//	devtoken issue --user <uuid> --role MANAGER --sub-department <uuid>
//	devtoken revoke --token <jwt>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
