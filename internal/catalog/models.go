package catalog

// TimeLayout - формат created_at/updated_at в каталоге и в SQL-артефакте.
const TimeLayout = "2006-01-02 15:04:05"

// Columns - порядок колонок таблицы wallpapers при вставке.
var Columns = []string{
	"id", "user_id", "title", "description", "file_path", "file_size",
	"width", "height", "category", "tags", "format", "views", "likes",
	"created_at", "updated_at",
}

// Entry представляет строку таблицы wallpapers. Теги db используются именованной вставкой.
type Entry struct {
	// ID - идентификатор YYYYMMDD + номер за день.
	ID int64 `db:"id"`

	// UserID - владелец записи.
	UserID int64 `db:"user_id"`

	// Title - имя файла без расширения.
	Title string `db:"title"`

	Description string `db:"description"`

	// FilePath - путь относительно корня сайта (static/wallpapers/003/a.jpg).
	FilePath string `db:"file_path"`

	// FileSize - человекочитаемый размер ("512.0 KB", "2.35 MB").
	FileSize string `db:"file_size"`

	Width  int `db:"width"`
	Height int `db:"height"`

	Category string `db:"category"`
	Tags     string `db:"tags"`

	// Format - формат исходника в верхнем регистре (JPEG, PNG).
	Format string `db:"format"`

	Views int64 `db:"views"`
	Likes int64 `db:"likes"`

	// CreatedAt, UpdatedAt - время в формате TimeLayout.
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Values возвращает значения в порядке Columns.
func (e Entry) Values() []any {
	return []any{
		e.ID, e.UserID, e.Title, e.Description, e.FilePath, e.FileSize,
		e.Width, e.Height, e.Category, e.Tags, e.Format, e.Views, e.Likes,
		e.CreatedAt, e.UpdatedAt,
	}
}

// CategoryCount - количество записей в категории.
type CategoryCount struct {
	Category string `db:"category"`
	Count    int64  `db:"total"`
}
