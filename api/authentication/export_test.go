package authentication

var DummyHash = dummyHash
