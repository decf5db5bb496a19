package metrics

import "time"

// truncate returns the start of the bucket containing t, in UTC. Weeks
// start on Monday, months on the first of the month.
func (b Bucket) truncate(t time.Time) time.Time {
	t = t.UTC()
	switch b {
	case BucketHour:
		return t.Truncate(time.Hour)
	case BucketDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case BucketWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -int((day.Weekday()+6)%7))
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// next returns the start of the bucket following start.
func (b Bucket) next(start time.Time) time.Time {
	switch b {
	case BucketHour:
		return start.Add(time.Hour)
	case BucketDay:
		return start.AddDate(0, 0, 1)
	case BucketWeek:
		return start.AddDate(0, 0, 7)
	case BucketMonth:
		return start.AddDate(0, 1, 0)
	}
	return start
}

// series builds a dense bucket series covering the window and counts the
// given event times into it. The first bucket is the one containing Since,
// so its start may precede the window; counts only ever include events
// inside the window because the store query already filtered on it.
func (b Bucket) series(w Window, times []time.Time) []BucketCount {
	counts := make([]BucketCount, 0)
	if !w.Until.After(w.Since) {
		return counts
	}

	until := w.Until.UTC()
	index := make(map[int64]int)
	for start := b.truncate(w.Since); start.Before(until); start = b.next(start) {
		index[start.UnixMilli()] = len(counts)
		counts = append(counts, BucketCount{Start: start})
	}
	for _, t := range times {
		if i, ok := index[b.truncate(t).UnixMilli()]; ok {
			counts[i].Count++
		}
	}
	return counts
}
