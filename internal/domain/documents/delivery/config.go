package delivery

import "sealedger/internal/core/numerator"

// NumberConfig numbers deliveries DEL-YYYY-NNN, restarting every year.
var NumberConfig = numerator.DefaultConfig("DEL")
