// 生成管理员密码的 bcrypt 哈希，填入 configs/config.yaml 的 admin.password_hash
//
// 用法: go run scripts/hash_password.go <明文密码>

package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("用法: go run scripts/hash_password.go <明文密码>")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("生成哈希失败: %v", err)
	}
	fmt.Println(string(hash))
}
