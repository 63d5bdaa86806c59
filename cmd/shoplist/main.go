package main

import (
	"context"
	"log"
	"os"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/shoplist"
)

func main() {
	if err := shoplist.Main(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
