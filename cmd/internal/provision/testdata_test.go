package provision

// knownVerifier is the verifier of "correcthorsebatterystaple" under a zero salt.
const knownVerifier = "SCRAM-SHA-256$4096:AAAAAAAAAAAAAAAAAAAAAA==$eUF1k4J+k6vn/gjLdhGCOqj8or5P/ugV9/2RsqJAcr0=:vzM7kbDlkHfoy706wQaRbtbf4Pi5Vp1pHI7LrpnqDYM="
