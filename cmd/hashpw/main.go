package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"treasury/pkg/crypto"
)

// hashpw генерирует bcrypt хеш для DASHBOARD_PASSWORD, TEAM_PASSWORD
// или WITHDRAW_ACTION_KEY. Значение передаётся аргументом или читается
// со stdin, хеш печатается в stdout и вставляется в .env как есть.
//
// Использование:
//
//	hashpw <password>
//	echo -n <password> | hashpw

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hashpw: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	password, err := readPassword(args, stdin)
	if err != nil {
		return err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, hash)
	return nil
}

// readPassword берёт пароль из первого аргумента, иначе читает одну
// строку со stdin. Завершающий перевод строки отбрасывается.
func readPassword(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		if args[0] == "" {
			return "", errors.New("password must not be empty")
		}
		return args[0], nil
	}

	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
