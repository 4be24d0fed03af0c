package presalefactory

import solanago "github.com/gagliardetto/solana-go"

// ProgramID is the presale factory program address.
var ProgramID = solanago.MustPublicKeyFromBase58("AjDwp2hFQaKF6ntfiG9xmfAwsRH8vTCmbC8ydvqfYZ4q")
