/*
Package iso7816 implements the APDU layer used to talk to a UICC according to
ISO/IEC 7816-4 and ETSI TS 102 221.

It provides Command and Response APDU encoding, Status Word analysis, command
builders for the file and PIN management instructions of a UICC, and parsers
for the data those commands return (FCP templates, EF.DIR records).

# Fundamentals

The communication with a card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX / 0x9FXX: Success, XX bytes to fetch with GET RESPONSE.
  - 0x6CXX: Wrong Le, XX is the correct length.
  - 0x63CX: Verification failed, X retries left.

A Client handles the GET RESPONSE and resend steps. Execute reports a failed
final status as a *StatusError, which matches sentinels such as
ErrFileNotFound or ErrVerificationFailed through errors.Is.

# Usage Example: Reading EF.ICCID

	client := iso7816.NewClient(conn)
	cla, _ := iso7816.NewClass(0x00)

	data, _, err := client.Execute(iso7816.SelectByPath(cla, []byte{0x2F, 0xE2}, iso7816.ReturnFCP))
	if err != nil {
		return err
	}
	fcp, err := iso7816.ParseFCP(data)
	if err != nil {
		return err
	}

	cmd, err := iso7816.ReadBinary(cla, 0, fcp.Size())
	if err != nil {
		return err
	}
	iccid, _, err := client.Execute(cmd)
*/
package iso7816
