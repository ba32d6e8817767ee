package domain

// IndexResult - результат загрузки глобального индекса.
type IndexResult struct {
	Index  *IndexData
	Origin Origin
	// FallbackReason заполнен, если вместо архива отдан встроенный пример.
	FallbackReason error
}

// DayResult - результат загрузки сырого файла дня.
type DayResult struct {
	Day            *RawDayBundle
	Origin         Origin
	FallbackReason error
}
