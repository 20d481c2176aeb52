package main

import "smartlibrary/internal/user"

type seedUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// seedPassword satisfies the registration password policy.
const seedPassword = "Passw0rd!"

var seedUsers = []seedUser{
	{"alice_reader", "alice@example.com", "Alice", "Johnson", user.RoleUser},
	{"bob_student", "bob@example.com", "Bob", "Smith", user.RoleUser},
	{"carol_prof", "carol@example.com", "Carol", "Brown", user.RoleAdmin},
}

type seedBook struct {
	Title     string
	Author    string
	ISBN      string
	Category  string
	Available int
	Total     int
}

var seedBooks = []seedBook{
	{"The Great Gatsby", "F. Scott Fitzgerald", "978-0-7432-7356-5", "Fiction", 3, 5},
	{"To Kill a Mockingbird", "Harper Lee", "978-0-06-112008-4", "Fiction", 2, 4},
	{"1984", "George Orwell", "978-0-452-28423-4", "Dystopian Fiction", 4, 6},
	{"Pride and Prejudice", "Jane Austen", "978-0-14-143951-8", "Romance", 3, 5},
	{"The Catcher in the Rye", "J.D. Salinger", "978-0-316-76948-0", "Fiction", 2, 4},
	{"Lord of the Flies", "William Golding", "978-0-571-05686-2", "Fiction", 3, 5},
	{"The Hobbit", "J.R.R. Tolkien", "978-0-547-92822-7", "Fantasy", 4, 6},
	{"Fahrenheit 451", "Ray Bradbury", "978-1-4516-7331-9", "Science Fiction", 3, 5},
	{"Jane Eyre", "Charlotte Brontë", "978-0-14-144114-6", "Romance", 2, 4},
	{"The Chronicles of Narnia", "C.S. Lewis", "978-0-06-623851-0", "Fantasy", 3, 5},
	{"Brave New World", "Aldous Huxley", "978-0-06-085052-4", "Science Fiction", 2, 4},
	{"The Lord of the Rings", "J.R.R. Tolkien", "978-0-547-92819-7", "Fantasy", 3, 5},
	{"Animal Farm", "George Orwell", "978-0-452-28424-1", "Political Satire", 4, 6},
	{"Of Mice and Men", "John Steinbeck", "978-0-14-017739-8", "Fiction", 3, 5},
	{"The Grapes of Wrath", "John Steinbeck", "978-0-14-303943-3", "Fiction", 2, 4},
	{"Wuthering Heights", "Emily Brontë", "978-0-14-143955-6", "Romance", 2, 4},
	{"The Picture of Dorian Gray", "Oscar Wilde", "978-0-14-143957-0", "Gothic Fiction", 3, 5},
	{"Dracula", "Bram Stoker", "978-0-14-143984-6", "Horror", 2, 4},
	{"Frankenstein", "Mary Shelley", "978-0-14-143947-1", "Gothic Fiction", 3, 5},
	{"The Strange Case of Dr. Jekyll and Mr. Hyde", "Robert Louis Stevenson", "978-0-14-143987-7", "Gothic Fiction", 4, 6},
}

const seedDescription = "A classic literary work that has captivated readers for generations."

// seedRating rates Books[Book] as Users[User].
type seedRating struct {
	User   int
	Book   int
	Score  int
	Review string
}

// The first ten books get one rating each, cycling through the users.
func seedRatings() []seedRating {
	out := make([]seedRating, 0, 10)
	for i := 0; i < 10 && i < len(seedBooks); i++ {
		out = append(out, seedRating{
			User:   i % len(seedUsers),
			Book:   i,
			Score:  4 + i%2,
			Review: "This is a wonderful book! Highly recommended.",
		})
	}
	return out
}

type seedBorrow struct {
	User     int
	Book     int
	Returned bool
}

// Borrow history drives category-based recommendations.
var seedBorrows = []seedBorrow{
	{User: 0, Book: 6, Returned: true},  // alice: The Hobbit
	{User: 0, Book: 11},                 // alice: The Lord of the Rings
	{User: 0, Book: 3, Returned: true},  // alice: Pride and Prejudice
	{User: 1, Book: 2, Returned: true},  // bob: 1984
	{User: 1, Book: 10},                 // bob: Brave New World
	{User: 2, Book: 17},                 // carol: Dracula
	{User: 2, Book: 18, Returned: true}, // carol: Frankenstein
}
