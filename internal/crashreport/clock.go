package crashreport

import "time"

func realNow() time.Time { return time.Now() }
