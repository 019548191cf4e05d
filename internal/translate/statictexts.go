package translate

// StaticTexts is the catalog of fixed UI strings warmed by the seed
// endpoint. The list mirrors the labels the web client renders; adding a
// string here makes it eligible for pre-translation but has no other effect.
var StaticTexts = []string{
	"Dashboard",
	"Inventory",
	"Equipment",
	"Categories",
	"Clients",
	"Partners",
	"Events",
	"Quotes",
	"Subrentals",
	"Maintenance",
	"Reports",
	"Notifications",
	"Files",
	"Settings",
	"Users",
	"Save",
	"Cancel",
	"Delete",
	"Edit",
	"Create",
	"Search",
	"Filter",
	"Export",
	"Import",
	"Upload",
	"Download",
	"Rename",
	"Move",
	"Restore",
	"Empty trash",
	"New folder",
	"Starred",
	"Trash",
	"Name",
	"Category",
	"Subcategory",
	"Quantity",
	"Daily rate",
	"Status",
	"Available",
	"Damaged",
	"In maintenance",
	"Start date",
	"End date",
	"Location",
	"Description",
	"Notes",
	"Total",
	"Subtotal",
	"Discount",
	"Client",
	"Partner",
	"Contact",
	"Email",
	"Phone",
	"Address",
	"Role",
	"Active",
	"Inactive",
	"Mark all as read",
	"No results found",
	"Are you sure?",
	"This action cannot be undone.",
	"Share catalog",
	"Copy link",
	"Link expired",
	"Sign in",
	"Sign out",
	"Username",
	"Password",
	"Invalid credentials",
	"Something went wrong. Please try again.",
}
