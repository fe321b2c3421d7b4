package pressing

import "sealedger/internal/core/numerator"

// NumberConfig numbers slips PRESS-YYYY-NNN, restarting every year.
var NumberConfig = numerator.DefaultConfig("PRESS")
