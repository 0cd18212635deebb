package structure_test

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/rowmap/pkg/cursor"
	"github.com/ajitpratap0/rowmap/pkg/structure"
)

type Author struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

type Post struct {
	ID     int    `db:"id"`
	Title  string `db:"title"`
	Author *Author
}

func ExampleDefault() {
	reader, err := structure.Default[*Post](structure.TypeOf[*Author]())
	if err != nil {
		panic(err)
	}

	rows := cursor.FromRows(
		[]string{"id", "title", "id", "name"},
		[][]interface{}{
			{1, "Hello", 10, "ada"},
			{2, "Again", 11, "grace"},
		},
	)
	posts, err := reader.ReadContext(context.Background(), rows)
	if err != nil {
		panic(err)
	}
	for p := range posts.All() {
		fmt.Printf("%d %s by %s\n", p.ID, p.Title, p.Author.Name)
	}
	// Output:
	// 1 Hello by ada
	// 2 Again by grace
}

func ExampleDefaultAdapter() {
	adapter, err := structure.DefaultAdapter[structure.Sequence[*Author], *Author]()
	if err != nil {
		panic(err)
	}
	fmt.Println(adapter.ReturnType() == structure.TypeOf[structure.Sequence[*Author]]())

	authors, err := adapter.Read(cursor.FromRows([]string{"id", "name"}, [][]interface{}{{1, "ada"}}))
	if err != nil {
		panic(err)
	}
	fmt.Println(authors.Len(), authors.At(0).Name)
	// Output:
	// true
	// 1 ada
}
