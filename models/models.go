package models

// All returns every model managed by the application, in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Follow{}, &Post{}, &PostTag{}, &PostMedia{}, &Comment{}, &Like{}}
}
