package export

import "sealedger/internal/core/numerator"

// NumberConfig numbers export documents EXP-YYYY-NNN, restarting every year.
var NumberConfig = numerator.DefaultConfig("EXP")
