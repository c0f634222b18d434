package models

import "strings"

// Category is a browsable livestream category
type Category struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Image string   `json:"image"`
	Tags  []string `json:"tags"`
}

// Categories is the catalog offered on the go-live form
var Categories = []Category{
	{ID: "1", Name: "Gaming", Image: "https://picsum.photos/id/23/200/300", Tags: []string{"IRL", "RPG", "Esports"}},
	{ID: "2", Name: "Music", Image: "https://picsum.photos/id/45/200/300", Tags: []string{"Live", "DJ", "Concert"}},
	{ID: "3", Name: "Technology", Image: "https://picsum.photos/id/64/200/300", Tags: []string{"Coding", "AI", "Startups"}},
	{ID: "4", Name: "Art", Image: "https://picsum.photos/id/102/200/300", Tags: []string{"Painting", "Digital", "Design"}},
	{ID: "5", Name: "Sports", Image: "https://picsum.photos/id/177/200/300", Tags: []string{"Football", "Cricket", "Fitness"}},
	{ID: "6", Name: "Education", Image: "https://picsum.photos/id/221/200/300", Tags: []string{"Tutorials", "Courses", "Lectures"}},
}

// LookupCategory finds a category by name, ignoring case
func LookupCategory(name string) (Category, bool) {
	for _, category := range Categories {
		if strings.EqualFold(category.Name, strings.TrimSpace(name)) {
			return category, true
		}
	}
	return Category{}, false
}
