package domain

// QueryResult — один результат поиска по визуальному сходству.
// Score — косинусное сходство в диапазоне [-1, 1].
type QueryResult struct {
	ProductID string
	Name      string
	Category  string
	ImageRef  string
	Price     int64
	Score     float32
}
