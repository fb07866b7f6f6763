package crypto

// opensslVector was produced with
//
//	printf '%s' PLAINTEXT | openssl enc -aes-256-cbc -e -pbkdf2 -iter ITER -k PASSWORD -S SALT
//
// (OpenSSL 3.0) with the "Salted__" marker and salt prepended, and checked with
// openssl enc -d -base64 -A. Key and IV come from the -P flag.
type opensslVector struct {
	name       string
	password   string
	iterations int
	salt       string // hex
	key        string // hex
	iv         string // hex
	plaintext  string
	encoded    string
}

var opensslVectors = []opensslVector{
	{
		name:       "hello world",
		password:   "correct horse battery staple",
		iterations: 10000,
		salt:       "0102030405060708",
		key:        "d3b1ce85988587ff1525f1ba69f8d55a7ff2243b1c764909f58d4e170def1295",
		iv:         "d7da3997d77b01859a0c8b316d4eb945",
		plaintext:  "hello world",
		encoded:    "U2FsdGVkX18BAgMEBQYHCKK8jRWvM/ZlkKABLPCi/9I=",
	},
	{
		name:       "block aligned",
		password:   "pw",
		iterations: 1000,
		salt:       "a1b2c3d4e5f60718",
		key:        "a4f1e362e9adde1625f7631b60b397d76d2a7812ba3a8cc9a1b7a7b02f8cf5ab",
		iv:         "e071ac3c0f79380b57f4d6095f5eb93e",
		plaintext:  "0123456789abcdef",
		encoded:    "U2FsdGVkX1+hssPU5fYHGHoHFXDOyAMY5W71jkkz/WlJBoQukSnk9hFQvyyTnFzx",
	},
	{
		name:       "empty password and plaintext",
		password:   "",
		iterations: 1,
		salt:       "0000000000000000",
		key:        "6233bd614e1436f9e56dfd85e7da20350d936e30a486843d19bb545e4b7c2848",
		iv:         "ee6e75f3cc252800e18291fbdbd06dbf",
		plaintext:  "",
		encoded:    "U2FsdGVkX18AAAAAAAAAAOZcz/dsua8ify+Sy6p2w6w=",
	},
}

// opensslRecord is a record sealed by openssl with a random salt
const (
	opensslRecordPassword = "secret"
	opensslRecordPlain    = `{"Password":"p@ss","Title":"mail","UserName":"alice"}`
	opensslRecordEncoded  = "U2FsdGVkX19yJOv8kg4hMv6fHAETLkATsyEPnwy2RmVb+8udZFmNzdAXZiwBquekm+g68ZLvhCboN0wuyLLF9pyDsHMAnIJkuiCZRAXOl04="
)
